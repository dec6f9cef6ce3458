// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package logger provides structured JSON logging for content gateway
// services. Entries are written to stdout for container log capture.
package logger
