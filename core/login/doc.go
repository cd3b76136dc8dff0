// Package login implements the state machine that drives a browser login
// handshake against an identity provider, one step at a time.
//
// # Architecture
//
// The engine composes three injected capabilities:
//
//   - session.Store: persistence with TTL reclamation (in-memory, Redis or
//     Postgres backends, or any custom implementation)
//   - Provider: the opaque network exchange with the identity provider
//   - lifecycle callbacks: on-success and on-error hooks, plus the store's
//     on-expire hook
//
// Adapters (HTTP handlers, IPC bridges) create a session, hand its id to
// the browser, and funnel each submitted step into HandleRequest:
//
//	engine, err := login.New(store, provider,
//		login.WithOnSuccess(func(ctx context.Context, sess session.Session) {
//			deliverCookies(ctx, sess)
//		}),
//		login.WithStepTimeout(15*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := engine.Initialize(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Shutdown(context.Background())
//
//	sess, err := engine.CreateSession(ctx, map[string]any{"chat_id": 42})
//	// ... browser opens /login/<sess.ID>, submits credentials ...
//	result, err := engine.HandleRequest(ctx, sess.ID,
//		login.CredentialsPayload{Account: acc, Password: pw})
//
// # Step Processing
//
// Each session advances through provider-defined stages: credentials,
// captcha, email verification, email captcha. The engine validates the
// submitted payload against the current stage, runs the provider exchange
// bounded by the step timeout, persists the resulting transition and only
// then schedules callbacks. A crash between persistence and callback
// scheduling therefore loses at most the callback, never session state.
//
// Retryable rejections (wrong credentials, failed captcha, wrong code,
// mismatched payload) leave the session unchanged and reusable; fatal
// failures (account lockout, expired handshake, protocol violations,
// provider stalls) move it to the terminal error status. Terminal sessions
// are never advanced again: HandleRequest fails with ErrInvalidState.
//
// # Concurrency
//
// Steps for one session are strictly serialized: a second concurrent
// HandleRequest for the same id fails fast with ErrBusy. Sessions are
// otherwise fully independent.
package login
