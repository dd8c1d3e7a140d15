// Package token implements the token registry.
//
// Every token is identified by a caller-chosen string ID and carries
// descriptive metadata plus feature flags. A token is either fungible, with
// a supply bounded only by the amount range, or a unique unit whose total
// supply is exactly one and which is minted once at creation. Token records
// are write-once: there is no update or delete path.
package token

// Config holds per-token feature flags.
type Config struct {
	EnableBurn bool `json:"enable_burn"`
}

// Info describes a token.
type Info struct {
	TokenID  string `json:"token_id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	IsUnique bool   `json:"is_unique"`
	Config   Config `json:"token_config"`
}
