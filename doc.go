// Package glotta provides an AI-backed translation engine for
// user-generated content, with a two-tier cache, in-flight request
// coalescing and batch de-duplication.
//
// Translations cache under two key spaces: content-hash keys that
// identify a translation by text alone, and resource keys that pin a
// translation to an application-level field and take priority, which is
// how manual overrides work. Concurrent identical requests share a
// single backend call, and repeated strings inside one batch translate
// exactly once.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/glotta"
//	    "github.com/ZaguanLabs/glotta/backend"
//	    "github.com/ZaguanLabs/glotta/storage"
//	)
//
//	func main() {
//	    b := backend.NewOpenAIBackend(backend.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    t := glotta.NewTranslator(storage.NewMemoryStore(), b)
//
//	    result, err := t.TranslateText(context.Background(), glotta.TranslateParams{
//	        Text: "Cozy apartment near the beach",
//	        To:   "he",
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.Text)
//	}
package glotta
