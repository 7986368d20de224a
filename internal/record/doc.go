// Package record defines the in-memory record model: immutable typed
// values (scalars, vectors, blobs, and archived directories) tagged with a
// mime type, and ordered per-ensemble collections of them.
//
// Records are created by loading a file from disk or by sampling a
// distribution, held in a Collection slot until transmitted to storage,
// and discarded afterwards. A Record never changes after construction;
// equality is structural, so two records with the same payload and mime
// are interchangeable for storage purposes.
package record
