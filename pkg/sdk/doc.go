// Package projectrag embeds the project tracker question-answering pipeline
// in a Go program without running the HTTP service.
//
// The client owns a SQLite tracker database and an in-memory vector index
// built from it on first use. Callers bring their own embedding and language
// model providers.
//
//	client, _ := projectrag.New(ctx,
//	    projectrag.WithDatabase("tracker.db"),
//	    projectrag.WithEmbedder(myEmbedder),
//	    projectrag.WithGenerator(myLLM),
//	)
//	defer client.Close()
//
//	ans, _ := client.Ask(ctx, "Which projects are delayed?")
//	fmt.Println(ans.Text)
//
// Writes through the client do not touch a built index; call InvalidateIndex
// to pick them up.
package projectrag
