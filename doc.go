// Package statement extracts financial events from the text of bank and
// broker statements.
//
// A statement is loaded as a [Document], an immutable list of pages of lines.
// A [RuleSet] describes, as data, how one institution lays out its documents:
// which documents it recognizes, which blocks of lines carry a transaction and
// which fields each block captures. [Extract] interprets a rule set against a
// document and returns the extracted [Item] values together with every error
// it met, so that a caller can present a complete picture of what was and was
// not understood.
//
// The core functionalities are:
//   - Field capture: locale aware parsing of amounts, shares, dates, times,
//     currencies, exchange rates and percentages into exact values.
//   - Block matching: a monotonic cursor walks the document, anchoring blocks
//     and evaluating their sections, repeating table rows and folding sections
//     that continue across page breaks.
//   - Item building: securities, transactions and buy/sell entries built
//     from the captured fields, with gross, tax and fee units that reconcile
//     to the printed total.
//   - Security resolution: candidates are matched against a read-only
//     registry snapshot and new securities are reported, never written.
//   - Batch extraction: documents are parsed in parallel against the same
//     snapshot, then consolidated serially in document order.
package statement
