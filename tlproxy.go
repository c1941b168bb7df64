// Package tlproxy serves static HTML translated on the fly by third-party
// translation providers.
//
// A request is resolved into a RenderContext, the page is streamed through
// processor.Transformer, and every translatable text fragment goes through a
// Translator that picks exactly one provider (DeepL, Google, OpenAI or none)
// for the requested language. Provider failures never break a page: the
// affected fragment is emitted untranslated.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/ZaguanLabs/tlproxy"
//	    "github.com/ZaguanLabs/tlproxy/processor"
//	    "github.com/ZaguanLabs/tlproxy/provider"
//	)
//
//	func main() {
//	    creds := tlproxy.Credentials{DeepLKey: os.Getenv("DEEPL_API_KEY")}
//
//	    t := tlproxy.NewTranslator(creds,
//	        tlproxy.WithClient(tlproxy.ProviderDeepL,
//	            provider.NewDeepLProvider(provider.DeepLConfig{APIKey: creds.DeepLKey})),
//	    )
//
//	    rc := tlproxy.RenderContext{TargetLang: "DE", ExplicitLang: true}.Resolve(creds)
//	    tr := processor.NewTransformer(t)
//	    if _, err := tr.Transform(context.Background(), strings.NewReader("<p>Hello</p>"), rc, os.Stdout); err != nil {
//	        log.Fatal(err)
//	    }
//	    // <p>Hallo</p>
//	}
package tlproxy
