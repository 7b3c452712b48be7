package render

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page wraps body sections into a complete HTML document.
func Page(title, username string, sections ...*html.Node) *html.Node {
	head := appendChildren(element(atom.Head),
		element(atom.Meta, attr("charset", "utf-8")),
		wrap(atom.Title, title),
	)
	header := appendChildren(element(atom.Header),
		wrap(atom.H1, title),
		wrap(atom.Span, "Signed in as "+username, class("user")),
	)
	content := appendChildren(element(atom.Main), sections...)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(appendChildren(element(atom.Html, attr("lang", "en")),
		head,
		appendChildren(element(atom.Body), header, content),
	))
	return doc
}

// Section groups a heading with its content under a stable id so fragments
// can replace it wholesale.
func Section(id, heading string, content ...*html.Node) *html.Node {
	section := appendChildren(element(atom.Section, attr("id", id)), wrap(atom.H2, heading))
	return appendChildren(section, content...)
}

func SearchForm(searchTerm string) *html.Node {
	return appendChildren(
		element(atom.Form, class("search"), attr("method", "get"), attr("action", documentsPath)),
		element(atom.Input, attr("type", "search"), attr("name", "search"), attr("value", searchTerm), attr("placeholder", "Search documents")),
		wrap(atom.Button, "Search", attr("type", "submit")),
	)
}

func UploadFileForm() *html.Node {
	return appendChildren(
		element(atom.Form, class("upload-file"), attr("method", "post"), attr("action", "/fragments/documents/upload"), attr("enctype", "multipart/form-data")),
		element(atom.Input, attr("type", "file"), attr("name", "file"), attr("required", "")),
		metadataInputs(),
		wrap(atom.Button, "Upload", attr("type", "submit")),
	)
}

func UploadTextForm() *html.Node {
	return appendChildren(
		element(atom.Form, class("upload-text"), attr("method", "post"), attr("action", "/fragments/documents/text")),
		element(atom.Textarea, attr("name", "document"), attr("rows", "8"), attr("required", "")),
		metadataInputs(),
		wrap(atom.Button, "Add text", attr("type", "submit")),
	)
}

func metadataInputs() *html.Node {
	return appendChildren(element(atom.Fieldset, class("metadata")),
		element(atom.Input, attr("type", "text"), attr("name", "title"), attr("placeholder", "Title")),
		element(atom.Input, attr("type", "text"), attr("name", "author"), attr("placeholder", "Author")),
		element(atom.Input, attr("type", "text"), attr("name", "tags"), attr("placeholder", "Tags, comma separated")),
	)
}

func ChatForm(retrievalDefault bool) *html.Node {
	checkbox := element(atom.Input, attr("type", "checkbox"), attr("name", "use_rag"), attr("value", "true"))
	if retrievalDefault {
		checkbox.Attr = append(checkbox.Attr, attr("checked", ""))
	}
	return appendChildren(
		element(atom.Form, class("chat"), attr("method", "post"), attr("action", "/fragments/chat")),
		element(atom.Textarea, attr("name", "message"), attr("rows", "3"), attr("placeholder", "Ask a question")),
		appendChildren(element(atom.Label), checkbox, text(" Use knowledge base")),
		wrap(atom.Button, "Send", attr("type", "submit")),
	)
}

func ClearChatForm() *html.Node {
	return appendChildren(
		element(atom.Form, class("clear-chat"), attr("method", "post"), attr("action", "/fragments/chat/clear")),
		wrap(atom.Button, "Clear chat", attr("type", "submit")),
	)
}

func RetrieveForm() *html.Node {
	return appendChildren(
		element(atom.Form, class("retrieve"), attr("method", "get"), attr("action", "/fragments/retrieve")),
		element(atom.Input, attr("type", "search"), attr("name", "query"), attr("placeholder", "Search knowledge base")),
		wrap(atom.Button, "Preview", attr("type", "submit")),
	)
}
