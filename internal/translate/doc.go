// Package translate turns GraphQL read requests into Cypher.
//
// A Translator holds one schema model and translates each root field of a
// request into its own statement:
//
//	tr, err := translate.FromSDL(sdl, translate.WithLimits(50, 500))
//	res, err := tr.Translate(ctx, translate.Request{Query: `{ movies { title } }`})
//	for _, st := range res.Statements {
//		// st.Cypher, st.Params
//	}
//
// Translation is pure: the same schema, request and claims always give the
// same Cypher and parameters. Results are identified by a canonical request
// hash and may be recorded to a translation log (see WithStore).
package translate
