package javaparse

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

var extToLang = map[string]*sitter.Language{
	".java": java.GetLanguage(),
}

// Detect returns the tree-sitter grammar for path and whether the file
// extension was recognized.
func Detect(path string) (*sitter.Language, bool) {
	lang, ok := extToLang[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}
