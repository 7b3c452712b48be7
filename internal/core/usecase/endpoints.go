package usecase

// Backend paths relative to the configured service base URLs.
const (
	pathPagedDocuments  = "/rag/documents/paged"
	pathDocumentIDs     = "/rag/documents"
	pathDocumentContent = "/rag/document/content"
	pathDocumentDelete  = "/rag/document/delete"
	pathUploadFile      = "/rag/document/upload/file"
	pathUploadText      = "/rag/document/upload"
	pathRetrieve        = "/api/rag/retrieve"
	pathStats           = "/api/rag/stats"
	pathPlainChat       = "/llm/chat"

	DefaultCombinedChatPath = "/rag/query"
	DefaultPageSize         = 10
)

const statusSuccess = "success"

// detailBreaker keeps a failing detail endpoint from opening the breaker
// that guards the id listing.
const detailBreaker = "rag-detail"
