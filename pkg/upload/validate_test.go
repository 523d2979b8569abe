package upload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var pngHead = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestValidateProof_AcceptsPNG(t *testing.T) {
	mime, err := ValidateProof("receipt.png", 1024, pngHead)
	require.NoError(t, err)
	require.Equal(t, "image/png", mime)
}

func TestValidateProof_AcceptsPDF(t *testing.T) {
	_, err := ValidateProof("invoice.pdf", 2048, []byte("%PDF-1.7 ..."))
	require.NoError(t, err)
}

func TestValidateProof_RejectsOversize(t *testing.T) {
	_, err := ValidateProof("receipt.png", MaxProofSize+1, pngHead)
	require.Error(t, err)
}

func TestValidateProof_RejectsExtension(t *testing.T) {
	_, err := ValidateProof("payload.exe", 100, []byte{0x4d, 0x5a, 0x90, 0x00})
	require.Error(t, err)
}

func TestValidateProof_RejectsHTMLMasqueradingAsImage(t *testing.T) {
	_, err := ValidateProof("receipt.png", 100, []byte("<html><script>alert(1)</script>"))
	require.Error(t, err)
}

func TestValidateProof_OctetStreamWithWhitelistedExt(t *testing.T) {
	// WebP under 12 bytes of header can sniff as octet-stream.
	_, err := ValidateProof("receipt.webp", 100, []byte{0x00, 0x01, 0x02})
	require.NoError(t, err)
}
