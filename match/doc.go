// Package match ranks named entities against a free-text description.
//
// Each entity walks a fixed ladder of tiers and takes the score of the first tier it
// clears:
//
//	exact        description == name                      1.0
//	token_exact  a description token == name              0.95
//	substring    name inside description                  0.85 + 0.1*len(name)/len(description), max 0.99
//	fuzzy_token  best ratio(token, name) >= 0.70          remapped onto [0.70, 0.90]
//	fuzzy_whole  token-sort ratio(description, name) >= 0.70   the ratio itself
//
// Entities that clear no tier are left out of the result. Names and descriptions are
// compared after textnorm.Normalize.
package match
