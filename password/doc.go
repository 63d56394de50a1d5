// Package password hashes and checks configured login passwords with argon2id.
//
// Hashes are stored in PHC string form:
//
//	$argon2id$v=19$m=<KB>,t=<passes>,p=<lanes>$<salt>$<key>
//
// Comparison of derived keys is constant time.
package password
