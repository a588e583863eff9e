// Package adaptive implements a cipher abstraction that automatically
// selects the best available AEAD algorithm based on hardware capabilities:
// AES-256-GCM when hardware AES support is available, ChaCha20-Poly1305
// otherwise. Used to encrypt saved connection passwords at rest.
package adaptive
