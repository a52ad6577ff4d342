/*
Package shindan is a diagnostic decision tree engine.

A tree is a static, read-only graph of Questions and Results. Each answer of a
Question names the next node; Results are terminal and recommend services from a
catalog. The engine never stores where a user is: callers hold the current node
ID and ask the engine to resolve an answer.

# Usage

By default the engine serves the shipped diagnostic compiled into the binary.
Other sources (a YAML/JSON/HCL file, a Loam vault, the Go DSL) plug in through
WithLoader.

	eng, err := shindan.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	current := eng.Entry()
	for !eng.IsTerminal(current) {
		// present the question, read an answer index ...
		current, err = eng.Advance(ctx, current, 0)
		if err != nil {
			log.Fatal(err) // a *domain.UsageError: caller bug, not a content problem
		}
	}

Content problems are reported as data by Validate and Audit, never as errors.

# Layout

  - pkg/domain: node variants, events, errors.
  - pkg/tree: the immutable tree, traversal, validation and content audits.
  - pkg/content, pkg/catalog: the shipped tree and service catalog.
  - pkg/session: optional server-side sessions for stateless transports.
  - pkg/adapters: loaders (memory, file, loam), stores (memory, redis), HTTP and MCP.
  - pkg/runner: interactive terminal walk.
  - cmd/shindan: the CLI.
*/
package shindan
