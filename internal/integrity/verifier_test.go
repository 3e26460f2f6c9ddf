package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"testing"
)

func TestChecksumMatchesSha256(t *testing.T) {
	content := []byte("hello world")
	tmpFile, _ := os.CreateTemp("", "checksum_test")
	defer os.Remove(tmpFile.Name())
	tmpFile.Write(content)
	tmpFile.Close()

	expected := sha256.Sum256(content)
	expectedStr := hex.EncodeToString(expected[:])

	actual, err := Checksum(tmpFile.Name())
	if err != nil {
		t.Fatalf("Checksum failed: %v", err)
	}
	if actual != expectedStr {
		t.Errorf("expected %s, got %s", expectedStr, actual)
	}
}

func TestChecksumDiffersForDifferentContent(t *testing.T) {
	fileA, _ := os.CreateTemp("", "checksum_a")
	defer os.Remove(fileA.Name())
	fileA.Write([]byte("content a"))
	fileA.Close()

	fileB, _ := os.CreateTemp("", "checksum_b")
	defer os.Remove(fileB.Name())
	fileB.Write([]byte("content b"))
	fileB.Close()

	sumA, err := Checksum(fileA.Name())
	if err != nil {
		t.Fatalf("Checksum failed: %v", err)
	}
	sumB, err := Checksum(fileB.Name())
	if err != nil {
		t.Fatalf("Checksum failed: %v", err)
	}
	if sumA == sumB {
		t.Error("expected different checksums for different content")
	}
}
