package render

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a plain-text status line. Errors are announced as alerts.
func Notice(level NoticeLevel, message string) *html.Node {
	role := "status"
	if level == NoticeError {
		role = "alert"
	}
	return wrap(atom.Div, message, class("notice notice-"+string(level)), attr("role", role))
}
