// Package content holds the world objects that make up a cell payload and a
// deterministic procedural loader for them.
//
// Generation is a pure function of (world seed, cell coordinate): the same
// inputs always yield the same objects, so an evicted cell reloads unchanged.
package content
