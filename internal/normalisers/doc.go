// Package normalisers turns raw OCR output into clean document text.
//
// textclean holds the pure cleanup functions; ocr applies them to an
// OCRResult and extracts the page images.
package normalisers
