// Package bedrock streams chat completions from AWS Bedrock without the AWS
// service SDK.
//
// # Overview
//
// A Gateway turns a provider-agnostic conversation into a signed
// invoke-with-response-stream call and decodes the reply into
// types.StreamChunk values:
//
//   - Translate picks a vendor wire format from the model ID prefix
//     (anthropic.claude, amazon.titan, ai21., cohere., meta.llama, or a
//     generic messages body for anything else)
//   - Signer computes AWS Signature Version 4 headers in-house
//   - ChunkParser normalizes every vendor's streamed chunk shape
//
// # Basic Usage
//
//	creds, err := bedrock.CredentialsFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gw := bedrock.NewGateway(
//	    bedrock.WithCredentials(*creds),
//	    bedrock.WithRegion(creds.Region),
//	)
//
//	stream := gw.StreamChatMessage(ctx, []types.ChatMessage{
//	    types.NewUserMessage("Hello"),
//	}, "anthropic.claude-3-haiku-20240307-v1:0", types.GenerationParams{})
//	defer stream.Close()
//
//	for {
//	    chunk, err := stream.Next()
//	    if err != nil {
//	        break // io.EOF, or the context error after cancellation
//	    }
//	    switch chunk.Kind {
//	    case types.ChunkKindText:
//	        fmt.Print(chunk.Text)
//	    case types.ChunkKindError:
//	        log.Printf("bedrock: %v", chunk.Err)
//	    }
//	}
//
// # Streams
//
// StreamChatMessage never fails directly. Credentials and region are read
// when it is called; the request is sent on the first Next. Missing
// credentials produce a single auth_error chunk, HTTP 401 and 403 produce an
// auth_error chunk, and every other failure produces a single network_error
// chunk. Cancelling the context or calling Close releases the connection at
// once.
//
// Bedrock replies with the binary application/vnd.amazon.eventstream
// framing. SSE-framed bodies, as served by some proxies, are decoded too.
//
// # Credentials
//
// Credentials can come from the environment (CredentialsFromEnv), from the
// stored JSON blob (ParseCredentialsJSON) or from the AWS SDK default chain
// (LoadDefaultCredentials). The SDK only resolves keys; it never signs.
//
// # Model Aliases
//
// A ModelMapper passed with WithModelMapper lets callers use short names:
//
//   - claude-3-haiku → anthropic.claude-3-haiku-20240307-v1:0
//   - claude-3-sonnet → anthropic.claude-3-sonnet-20240229-v1:0
//
// FoundationModels lists the curated models served by the model catalog.
//
// # Debugging
//
// WithDebug(true) logs the canonical request and string to sign of every
// signature. Secrets are never logged.
package bedrock
