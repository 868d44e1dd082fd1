// Package connectors holds the sources documents are submitted from.
//
// filesystem resolves command-line paths into source locators and watches
// an inbox directory for new PDFs.
package connectors
