/*
Package dsl provides a Go DSL for building diagnostic trees in code.

It is the type-safe alternative to YAML, JSON or HCL documents and is handy for
tests, generated trees and IDE autocompletion.

Example usage:

	b := dsl.New()

	b.Question("q1").
		Text("What slows your business down?").
		Answer("Bookkeeping", "r-books").
		Answer("Something else", "q2")

	b.Question("q2").
		Text("Closest match?").
		Hint("Pick one").
		Answer("Our website", "r-web")

	b.Result("r-books").
		Title("Bookkeeping").
		Recommend("bookkeeping", "cloud-accounting").
		PreFill("I'd like help with bookkeeping.")

	b.Result("r-web").
		Title("Web development").
		Recommend("web-development")

	t, err := b.Build("q1")
	// ... or b.Loader("q1") for a ports.TreeLoader
*/
package dsl
