// Package sieveutf7 implements IMAP "modified UTF-7" (RFC 3501
// §5.1.3), used to transliterate fileinto mailbox names when the
// interpreter is configured to do so (§4.2).
package sieveutf7

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/migadu/sievecore/consts"
)

const modifiedBase64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+,"

var modifiedB64 = base64.NewEncoding(modifiedBase64Alphabet).WithPadding(base64.NoPadding)

// Decode converts a modified-UTF-7 mailbox name to its UTF-8 form.
func Decode(name string) (string, error) {
	dst, err := appendDecode(nil, []byte(name))
	if err != nil {
		return "", fmt.Errorf("%w: %v", consts.ErrBytecodeMalformed, err)
	}
	return string(dst), nil
}

// Encode converts a UTF-8 mailbox name to modified-UTF-7.
func Encode(name string) string {
	dst, _ := appendEncode(nil, []byte(name))
	return string(dst)
}

func appendDecode(dst, src []byte) ([]byte, error) {
	for len(src) > 0 {
		c := src[0]
		src = src[1:]
		if c != '&' {
			dst = append(dst, c)
			continue
		}
		i := bytes.IndexByte(src, '-')
		if i == -1 {
			return nil, fmt.Errorf("unterminated shifted run")
		}
		if i == 0 {
			src = src[1:]
			dst = append(dst, '&')
			continue
		}
		scratch := make([]byte, modifiedB64.DecodedLen(i))
		n, err := modifiedB64.Decode(scratch, src[:i])
		src = src[i+1:]
		if err != nil {
			return nil, fmt.Errorf("base64 decode: %w", err)
		}
		scratch = scratch[:n]
		if len(scratch)%2 == 1 {
			return nil, fmt.Errorf("odd-length utf16 run")
		}
		for len(scratch) > 0 {
			r := rune(scratch[0])<<8 | rune(scratch[1])
			scratch = scratch[2:]
			if utf16.IsSurrogate(r) {
				if len(scratch) < 2 {
					return nil, fmt.Errorf("truncated surrogate pair")
				}
				r2 := rune(scratch[0])<<8 | rune(scratch[1])
				scratch = scratch[2:]
				r = utf16.DecodeRune(r, r2)
			}
			var b [4]byte
			dst = append(dst, b[:utf8.EncodeRune(b[:], r)]...)
		}
	}
	return dst, nil
}

func appendEncode(dst, src []byte) ([]byte, error) {
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		switch {
		case r == '&':
			dst = append(dst, '&', '-')
			src = src[1:]
			continue
		case r < utf8.RuneSelf:
			dst = append(dst, byte(r))
			src = src[1:]
			continue
		}

		var scratch []byte
		for len(src) > 0 {
			r, sz := utf8.DecodeRune(src)
			if r < utf8.RuneSelf {
				break
			}
			src = src[sz:]
			if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
				scratch = append(scratch, byte(r1>>8), byte(r1))
				r = r2
			}
			scratch = append(scratch, byte(r>>8), byte(r))
		}
		_ = size

		b64len := modifiedB64.EncodedLen(len(scratch))
		dst = append(dst, '&')
		dst = append(dst, make([]byte, b64len)...)
		modifiedB64.Encode(dst[len(dst)-b64len:], scratch)
		dst = append(dst, '-')
	}
	return dst, nil
}
