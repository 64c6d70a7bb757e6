// Package document holds uploaded files and turns them into something an
// extraction model can read.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/venue-planner/constants"
)

// File is one uploaded document.
type File struct {
	Name       string `json:"name"`
	MIMEType   string `json:"mime_type"`
	SourcePath string `json:"source_path,omitempty"`
	Hash       string `json:"hash,omitempty"`
	Data       []byte `json:"-"`
}

// NewFile fills in the MIME type and content hash from name and data.
func NewFile(name string, data []byte) File {
	sum := sha256.Sum256(data)
	return File{
		Name:     filepath.Base(name),
		MIMEType: DetectMIME(name),
		Hash:     hex.EncodeToString(sum[:]),
		Data:     data,
	}
}

// Ext returns the normalised extension of the file name.
func (f File) Ext() string {
	return constants.NormalizeExt(filepath.Ext(f.Name))
}

func (f File) Size() int { return len(f.Data) }

var mimeByExt = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"heic": "image/heic",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"csv":  "text/csv",
	"txt":  "text/plain",
	"md":   "text/markdown",
}

// DetectMIME maps a file name onto a MIME type, falling back to the system table.
func DetectMIME(name string) string {
	ext := constants.NormalizeExt(filepath.Ext(name))
	if m, ok := mimeByExt[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension("." + ext); m != "" {
		return strings.SplitN(m, ";", 2)[0]
	}
	return "application/octet-stream"
}
