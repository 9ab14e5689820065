// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils normalizes user supplied text.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// LowerASCIIFolding normalizes a string for matching: full-width forms are
// folded, accents removed, the result lowercased and trimmed.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			width.Fold,
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return strings.ToLower(s)
}

// ContainsFolded reports whether needle occurs in haystack once both are folded.
func ContainsFolded(haystack, needle string) bool {
	return strings.Contains(LowerASCIIFolding(haystack), LowerASCIIFolding(needle))
}

// StripHTML drops markup from s, keeping only its text. Content of script and
// style elements is discarded. Entities are decoded.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return strings.TrimSpace(s)
	}

	sb := strings.Builder{}
	for _, n := range nodes {
		node2text(n, &sb)
	}

	return strings.TrimSpace(sb.String())
}

func node2text(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}

		if n.DataAtom == atom.Br {
			sb.WriteByte('\n')
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		node2text(child, sb)
	}
}
