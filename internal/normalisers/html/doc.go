// Package html provides a Normaliser for HTML documents. It drops scripts,
// styles and other non-content elements, then renders the remaining text
// with one line per block element.
package html
