// Package harness runs translation scenarios.
//
// A scenario pairs a schema and a GraphQL request with the Cypher the
// translator must produce. Scenarios are YAML files:
//
//	name: movies_by_title
//	description: "Equality filter on a root read"
//	schema: schema.graphql        # or sdl: | inline SDL
//	query: |
//	  query ($t: String) { movies(where: {title: $t}) { title } }
//	variables: { t: "Heat" }
//	claims: { sub: "alice" }
//	authorization:
//	  Movie: { where: { owner: "$jwt.sub" } }
//	limits: { default: 50, max: 500 }
//	expect:
//	  cypher: |
//	    MATCH (this:Movie)
//	    WHERE this.title = $param0
//	    RETURN this { .title } AS this
//	  params: { param0: "Heat" }
//
// # Expectations
//
//   - cypher: exact text of all statements, separated by a blank line
//   - contains: substrings the Cypher text must contain
//   - params: subset of the first statement's parameters
//   - error: code the translation must fail with
//
// With no expect block a scenario only has to translate. Golden files
// (see RunWithGolden and Snapshot) pin the full output.
//
// # Determinism
//
// Translation is pure, so a scenario produces identical output on every
// run and RunAll may run scenarios concurrently.
package harness
