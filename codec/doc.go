// Package codec turns session data into signed transport tokens and back.
//
// # Token format
//
// A token is the standard base64 (padded) encoding of
//
//	hex(signature) ":" payload
//
// where payload is the serialized session mapping and signature is computed by the
// configured [Signer] over the payload bytes. The separator, the hex signature and the
// base64 alphabet are part of the persisted format; changing any of them invalidates
// every stored session.
//
// # Failure semantics
//
// [Codec.Decode] fails closed. Malformed base64 yields [ErrDecode], a missing separator
// or a signature mismatch yields [ErrCorruptedSessionData]. [ErrDecode] also matches
// [ErrCorruptedSessionData] under errors.Is so callers can treat both as tampering.
//
// # What this package must NOT do
//
//   - Encrypt payloads (integrity only, not confidentiality).
//   - Perform I/O or know about storage keys.
//   - Log or otherwise expose signer secrets.
package codec
