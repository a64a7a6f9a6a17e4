// Package corefmt 處理 RNG Core 快照（[]byte）在不同傳輸媒介上的編碼。
//
//   - HTTP/JSON：Base64URL（start_b64u / after_b64u）。
//   - 檔案：長度前綴的二進位 frame（cmd/run 的 --state-in / --state-out）。
//   - 日誌：Hex。
package corefmt

import (
	"bufio"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/zintix-labs/pairlab/errs"
)

// MaxSnapBytes 讀取不受信任的快照時的上限
const MaxSnapBytes = 1 << 16

func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.WrapWarn(err, "decode base64url failed")
	}
	if len(b) == 0 {
		return nil, errs.NewWarn("decode base64url failed: empty snapshot")
	}
	return b, nil
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.WrapWarn(err, "decode hex failed")
	}
	return b, nil
}

// EncodeBlobFrame 編成 frame := uvarint(len(payload)) || payload
func EncodeBlobFrame(payload []byte) []byte {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(payload)))

	out := make([]byte, 0, n+len(payload))
	out = append(out, hdr[:n]...)
	out = append(out, payload...)
	return out
}

// DecodeBlobFrame 解開 EncodeBlobFrame 的輸出；frame 截斷或長度欄位錯誤時回傳 error。
func DecodeBlobFrame(frame []byte) ([]byte, error) {
	n, size := binary.Uvarint(frame)
	if size <= 0 {
		return nil, errs.NewWarn("decode blob frame failed: invalid varint length")
	}
	if uint64(len(frame)-size) < n {
		return nil, errs.NewWarn("decode blob frame failed: truncated payload")
	}
	out := make([]byte, n)
	copy(out, frame[size:size+int(n)])
	return out, nil
}

// WriteBlobFrame 把一個 frame 寫進 w
func WriteBlobFrame(w io.Writer, payload []byte) error {
	if _, err := w.Write(EncodeBlobFrame(payload)); err != nil {
		return errs.Wrap(err, "write blob frame failed")
	}
	return nil
}

// ReadBlobFrame 從 r 讀一個 frame；maxBytes > 0 時限制 payload 大小。
func ReadBlobFrame(r io.Reader, maxBytes uint64) ([]byte, error) {
	br := bufio.NewReader(r)
	ln, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errs.WrapWarn(err, "read blob frame header failed")
	}
	if maxBytes > 0 && ln > maxBytes {
		return nil, errs.Warnf("read blob frame failed: payload %d exceeds %d bytes", ln, maxBytes)
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, errs.WrapWarn(err, "read blob frame payload failed")
	}
	return buf, nil
}
