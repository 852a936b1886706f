// Package value provides a typed variant value for arbitrarily shaped
// source payloads, plus a small dotted-path evaluator.
//
// Merchant sources deliver product records in vendor-specific shapes:
// nested JSON objects, flat CSV rows, webhook bodies. Rather than
// passing map[string]any blobs around and type-asserting everywhere,
// the application converts each record into a Value tree once and
// resolves canonical fields through path expressions.
//
// # Kinds
//
// A Value holds exactly one of: String, Number, Bool, List, Map, Null.
// This mirrors the JSON data model, so any decoded JSON document maps
// onto it losslessly.
//
// # Path Expressions
//
// Paths are dot-separated segments. Map segments index by key; numeric
// segments index into lists:
//
//	v, ok := record.Lookup("images.0.src")
//
// # Coercion
//
// Scalar coercions (AsString, AsFloat, AsBool) are deliberately
// forgiving: numeric-looking strings parse as numbers, "1"/"true"
// count as true. Source feeds are messy and a cosmetic type issue
// must not reject an otherwise valid record.
package value
