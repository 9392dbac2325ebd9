// Package grid holds the card data model: an 8x8 Matrix of three-channel
// Cells, the plaintext Format it is decoded from, and the resolver that turns
// coordinate tokens such as "A1B" into (row, column, channel) indices.
//
// A Matrix is only ever handed out fully populated. Format.Parse returns nil
// on every failure, so callers never observe a partially decoded card.
package grid
