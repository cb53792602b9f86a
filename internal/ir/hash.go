package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the hashed layout to change later.
const (
	DomainChain    = "callchain/chain/v1"
	DomainRewrite  = "callchain/rewrite/v1"
	DomainPipeline = "callchain/pipeline/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data), hex encoded.
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ChainHash identifies a chain by its exact text and the rewrite mode.
// Used as the memo key for rewrites.
func ChainHash(text, mode string) (string, error) {
	canonical, err := MarshalCanonical(Object{
		"chain":   String(text),
		"mode":    String(mode),
		"version": String(IRVersion),
	})
	if err != nil {
		return "", fmt.Errorf("ChainHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainChain, canonical), nil
}

// RewriteID identifies one rewrite record: an input processed in a batch at a seq.
func RewriteID(inputHash, batch string, seq int64) (string, error) {
	canonical, err := MarshalCanonical(Object{
		"input_hash": String(inputHash),
		"batch":      String(batch),
		"seq":        Int(seq),
	})
	if err != nil {
		return "", fmt.Errorf("RewriteID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRewrite, canonical), nil
}

// PipelineHash identifies a compiled catalog pipeline by name, steps and
// rewrite mode, as compiled by this engine version.
func PipelineHash(name string, steps []string, mode string) (string, error) {
	canonical, err := MarshalCanonical(Object{
		"name":           String(name),
		"steps":          Strings(steps),
		"mode":           String(mode),
		"engine_version": String(EngineVersion),
	})
	if err != nil {
		return "", fmt.Errorf("PipelineHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPipeline, canonical), nil
}

// MustChainHash is like ChainHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustChainHash(text, mode string) string {
	h, err := ChainHash(text, mode)
	if err != nil {
		panic(err)
	}
	return h
}
