// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package lexicon resolves language-scoped phrase collections (hooks,
// avoid-words, call-to-actions) from the PostgreSQL lookup store.
package lexicon
