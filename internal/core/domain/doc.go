// Package domain defines the value model shared by the grammar, the
// engine and the wire codec.
//
//   - Value: the stored and replied data kinds (Nil, Int, Str, List, Set,
//     Hash, ZSet, Array)
//   - Return: the result of executing a command (OK, Error, ValueReturn)
//   - Command: one typed struct per verb, produced by the grammar
//   - DomainError: coded errors whose text is the reply sent to clients
//
// The package has no IO dependencies.
package domain
