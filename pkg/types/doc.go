// Package types defines the core data model for the memograph knowledge
// store: scopes, contexts, documents, entities, relationships, and the
// system metadata stamped onto every fact.
//
// The model is deliberately storage-agnostic. Persistence lives behind the
// driver.GraphStore interface; embeddings and similarity scores are carried
// on the fact structs but ownership of both stays with the collaborators
// that produce them.
package types
