// Package nlu implements language understanding on both sides of a
// simulated conversation: the system's rule-based ActParser, and the
// simulated user's intent annotator and entity linker, which rely on
// tf-idf similarity over an annotated corpus and a movie catalog.
package nlu
