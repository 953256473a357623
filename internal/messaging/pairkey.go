package messaging

// PairKey returns the canonical, order-independent key for a pair of user
// IDs: the two IDs sorted lexicographically and joined. The same two users
// always produce the same key regardless of who initiates, and the unique
// index on conversations.pair_key turns "one conversation per pair" into a
// store-level constraint instead of a check-then-act scan.
func PairKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}
