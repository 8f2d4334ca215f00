// Package textutil normalizes human-entered names such as shop folder names.
//
// Shop directories come from operators on different systems, so the same shop
// may arrive in NFC or NFD form and with varying case or spacing. Display
// names are NFC-normalized with collapsed whitespace; keys are additionally
// case-folded so lookups and grouping are stable.
package textutil
