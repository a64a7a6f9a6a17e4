package corefmt

import (
	"bytes"
	"testing"

	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/sdk/core"
)

func TestBase64URLCarriesCoreSnapshot(t *testing.T) {
	c := core.Default().New(42)
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snap: %v", err)
	}
	s := EncodeBase64URL(snap)
	got, err := DecodeBase64URL(s)
	if err != nil || !bytes.Equal(got, snap) {
		t.Fatalf("decode: %v", err)
	}
	if _, err := DecodeBase64URL(""); err == nil {
		t.Fatalf("empty snapshot should fail")
	}
	_, err = DecodeBase64URL("!!")
	if e, ok := errs.AsErr(err); !ok || e.ErrLv != errs.Warn {
		t.Fatalf("bad base64 should be a warn error, got %v", err)
	}
}

func TestHex(t *testing.T) {
	if s := EncodeHex([]byte{0xde, 0xad}); s != "dead" {
		t.Fatalf("EncodeHex = %q", s)
	}
	if _, err := DecodeHex("zz"); err == nil {
		t.Fatalf("bad hex should fail")
	}
}

func TestBlobFrame(t *testing.T) {
	payload := bytes.Repeat([]byte{7}, 300)
	frame := EncodeBlobFrame(payload)
	if len(frame) != len(payload)+2 {
		t.Fatalf("300 needs a 2-byte uvarint header, got frame len %d", len(frame))
	}
	got, err := DecodeBlobFrame(frame)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("decode frame: %v", err)
	}
	if _, err := DecodeBlobFrame(frame[:100]); err == nil {
		t.Fatalf("truncated frame should fail")
	}
	if _, err := DecodeBlobFrame(nil); err == nil {
		t.Fatalf("empty frame should fail")
	}
}

func TestReadWriteBlobFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBlobFrame(&buf, []byte("state")); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := append([]byte(nil), buf.Bytes()...)
	got, err := ReadBlobFrame(&buf, MaxSnapBytes)
	if err != nil || string(got) != "state" {
		t.Fatalf("read: %q %v", got, err)
	}
	if _, err := ReadBlobFrame(bytes.NewReader(raw), 3); err == nil {
		t.Fatalf("payload over limit should fail")
	}
	if _, err := ReadBlobFrame(bytes.NewReader(raw[:3]), 0); err == nil {
		t.Fatalf("short payload should fail")
	}
}
