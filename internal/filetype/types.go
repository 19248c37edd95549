// Package filetype decides which files the host accepts as media and applies
// the operator's extension allow list.
package filetype

import (
	"path/filepath"
	"strings"
)

// hostTypes maps the extensions the media library accepts to their MIME type.
// Extensions absent from this table are never importable.
var hostTypes = map[string]string{
	// Images
	"jpg": "image/jpeg", "jpeg": "image/jpeg", "jpe": "image/jpeg",
	"gif":  "image/gif",
	"png":  "image/png",
	"bmp":  "image/bmp",
	"tif":  "image/tiff", "tiff": "image/tiff",
	"webp": "image/webp",
	"avif": "image/avif",
	"heic": "image/heic",
	"ico":  "image/x-icon",

	// Video
	"asf": "video/x-ms-asf", "asx": "video/x-ms-asf",
	"wmv": "video/x-ms-wmv",
	"avi": "video/avi",
	"mov": "video/quicktime", "qt": "video/quicktime",
	"mpeg": "video/mpeg", "mpg": "video/mpeg", "mpe": "video/mpeg",
	"mp4": "video/mp4", "m4v": "video/mp4",
	"ogv":  "video/ogg",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"3gp":  "video/3gpp", "3gpp": "video/3gpp",

	// Text
	"txt": "text/plain", "asc": "text/plain", "c": "text/plain", "cc": "text/plain", "h": "text/plain", "srt": "text/plain",
	"csv": "text/csv",
	"tsv": "text/tab-separated-values",
	"ics": "text/calendar",
	"rtx": "text/richtext",
	"vtt": "text/vtt",

	// Audio
	"mp3": "audio/mpeg", "m4a": "audio/mpeg", "m4b": "audio/mpeg",
	"aac":  "audio/aac",
	"ra":   "audio/x-realaudio", "ram": "audio/x-realaudio",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg", "oga": "audio/ogg",
	"flac": "audio/flac",
	"mid":  "audio/midi", "midi": "audio/midi",
	"wma":  "audio/x-ms-wma",

	// Documents and archives
	"pdf":     "application/pdf",
	"rtf":     "application/rtf",
	"psd":     "application/octet-stream",
	"doc":     "application/msword",
	"docx":    "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":     "application/vnd.ms-excel",
	"xlsx":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":     "application/vnd.ms-powerpoint",
	"pptx":    "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"odt":     "application/vnd.oasis.opendocument.text",
	"ods":     "application/vnd.oasis.opendocument.spreadsheet",
	"odp":     "application/vnd.oasis.opendocument.presentation",
	"key":     "application/vnd.apple.keynote",
	"numbers": "application/vnd.apple.numbers",
	"pages":   "application/vnd.apple.pages",
	"zip":     "application/zip",
	"gz":      "application/x-gzip", "gzip": "application/x-gzip",
	"tar": "application/x-tar",
	"7z":  "application/x-7z-compressed",
	"rar": "application/rar",
}

// Ext returns the lower-cased extension of name without the leading dot.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// TypeByName returns the MIME type the host assigns to name by extension,
// or "" when the extension is not a permitted media type.
func TypeByName(name string) string {
	return hostTypes[Ext(name)]
}
