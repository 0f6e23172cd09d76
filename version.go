// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

// Version is the SDK version reported in the X-Flare-Auth header and the
// event/transaction "sdk" metadata block.
const Version = "0.1.0"

// sdkName is the client identifier reported alongside Version.
const sdkName = "flare-go"
