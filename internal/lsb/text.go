package lsb

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TextPayload returns the NFC form of text so that visually identical
// strings produce identical payloads.
func TextPayload(text string) []byte {
	return norm.NFC.Bytes([]byte(text))
}

// Text returns secret as a string, or a KindInvalidEncoding error when it is
// not valid UTF-8.
func Text(secret []byte) (string, error) {
	if !utf8.Valid(secret) {
		return "", newError(KindInvalidEncoding, "recovered payload is not valid UTF-8")
	}
	return string(secret), nil
}

// EmbedText embeds the NFC form of text.
func EmbedText(buf []byte, text string) error {
	return Embed(buf, TextPayload(text))
}

// EmbedFramedText is EmbedText for the framed layout.
func EmbedFramedText(buf []byte, text string) error {
	return EmbedFramed(buf, TextPayload(text))
}

// ExtractText is Extract followed by UTF-8 validation.
func ExtractText(buf []byte) (string, error) {
	secret, err := Extract(buf)
	if err != nil {
		return "", err
	}
	return Text(secret)
}
