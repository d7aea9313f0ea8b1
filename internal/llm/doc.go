// Package llm wraps the external text-generation service behind a single
// narrow contract. Callers treat generation failures and timeouts
// identically: the reasoning task that issued the prompt substitutes its
// safe empty default either way.
package llm
