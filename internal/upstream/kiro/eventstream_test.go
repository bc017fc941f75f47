package kiro

import (
	"encoding/binary"
	"hash/crc32"
	"testing"
)

func encodeFrame(t *testing.T, headers map[string]string, payload []byte) []byte {
	t.Helper()
	var headerBytes []byte
	for name, val := range headers {
		headerBytes = append(headerBytes, byte(len(name)))
		headerBytes = append(headerBytes, []byte(name)...)
		headerBytes = append(headerBytes, 7) // string type
		vl := make([]byte, 2)
		binary.BigEndian.PutUint16(vl, uint16(len(val)))
		headerBytes = append(headerBytes, vl...)
		headerBytes = append(headerBytes, []byte(val)...)
	}

	totalLen := preludeLen + preludeCRCLen + len(headerBytes) + len(payload) + messageCRCLen
	buf := make([]byte, totalLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(totalLen))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(headerBytes)))
	binary.BigEndian.PutUint32(buf[8:12], crc32.ChecksumIEEE(buf[0:8]))
	copy(buf[12:], headerBytes)
	copy(buf[12+len(headerBytes):], payload)
	msgCRCOffset := totalLen - messageCRCLen
	binary.BigEndian.PutUint32(buf[msgCRCOffset:totalLen], crc32.ChecksumIEEE(buf[0:msgCRCOffset]))
	return buf
}

func TestDecoderDecodesSingleFrame(t *testing.T) {
	frame := encodeFrame(t, map[string]string{":event-type": "assistantResponseEvent"}, []byte(`{"content":"hi"}`))

	d := NewDecoder()
	frames, err := d.Feed(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].Headers[":event-type"] != "assistantResponseEvent" {
		t.Fatalf("unexpected headers: %v", frames[0].Headers)
	}
	if string(frames[0].Payload) != `{"content":"hi"}` {
		t.Fatalf("unexpected payload: %s", frames[0].Payload)
	}
}

func TestDecoderHandlesSplitChunks(t *testing.T) {
	frame := encodeFrame(t, map[string]string{":event-type": "assistantResponseEvent"}, []byte(`{"content":"split"}`))

	d := NewDecoder()
	mid := len(frame) / 2
	frames, err := d.Feed(frame[:mid])
	if err != nil {
		t.Fatalf("unexpected error on partial feed: %v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("expected no frames from partial feed, got %d", len(frames))
	}
	frames, err = d.Feed(frame[mid:])
	if err != nil {
		t.Fatalf("unexpected error completing feed: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame after completion, got %d", len(frames))
	}
}

func TestDecoderRecoversFromCRCMismatch(t *testing.T) {
	good := encodeFrame(t, map[string]string{":event-type": "assistantResponseEvent"}, []byte(`{"content":"ok"}`))
	corrupt := append([]byte(nil), good...)
	corrupt[len(corrupt)-1] ^= 0xFF // flip a bit in the message crc

	stream := append(corrupt, good...)
	d := NewDecoder()
	frames, err := d.Feed(stream)
	if err != nil {
		t.Fatalf("unexpected terminal error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected decoder to recover and decode the trailing good frame, got %d frames", len(frames))
	}
}

func TestDecoderStopsAfterFiveConsecutiveErrors(t *testing.T) {
	junk := make([]byte, 64)
	for i := range junk {
		junk[i] = 0xAA
	}
	d := NewDecoder()
	_, err := d.Feed(junk)
	if err != errTooManyErrors {
		t.Fatalf("expected errTooManyErrors, got %v", err)
	}
}
