package warc

import (
	"crypto/sha1" //nolint:gosec // WARC-Payload-Digest is specified as sha1
	"encoding/hex"
)

// PayloadDigest returns the "sha1:<hex>" digest string WARC-Payload-Digest
// expects. The digest is always computed over the raw bytes handed to it,
// matching what the writer already has in hand at record-construction
// time; canonicalization under Content-Encoding is left to the caller.
func PayloadDigest(payload []byte) string {
	sum := sha1.Sum(payload) //nolint:gosec
	return "sha1:" + hex.EncodeToString(sum[:])
}
