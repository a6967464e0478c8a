// Package propmatch recommends existing project proposals for a new project
// theme by embedding similarity.
//
// A corpus of previously embedded proposals is loaded once; each query
// (theme plus comma-separated tags) is normalized, embedded with the same
// model, scored against every proposal with cosine similarity and ranked.
//
//	client, err := propmatch.New(ctx,
//	    propmatch.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "text-embedding-3-small"),
//	    propmatch.WithCorpusFile("vectorized_proposals.json"),
//	)
//	suggestions, err := client.Suggest(ctx, "Messaging platform", "realtime, mobile")
//	for _, s := range suggestions {
//	    fmt.Println(s.Title, s.Score)
//	}
//
// Defaults follow the diagnostic matcher: threshold 0.65, no result cap and
// four-digit rounding. Use WithThreshold, WithTopK and WithPrecision to get
// the HTTP service behavior (0.35, 3, 3).
//
// A corpus is produced from extracted proposal texts with Client.Vectorize,
// using the document embedder so corpus and queries share one model.
package propmatch
