// Package nullpolicy is the client-side implementation of the built-in
// "null" security flavor (spec.md section 9): no authentication, no
// integrity checksum, no encryption. Sign, Seal, Verify, and Unseal all
// return their input unchanged, and its CliCtx is ETERNAL — it has no
// Refresher, so pkg/sec never schedules it for a refresh round-trip.
//
// It exists so a process has something real to register for an import
// that has no security.imports entry, without reaching for a policy
// that needs credential material it may not have.
//
// Register it once at process start:
//
//	registry := secpolicy.NewRegistry()
//	if err := registry.Register(nullpolicy.New()); err != nil {
//		log.Fatal(err)
//	}
package nullpolicy
