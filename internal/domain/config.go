package domain

// KeyPrefix namespaces every key magmavol writes to the KV store.
const KeyPrefix = "magmavol:"
