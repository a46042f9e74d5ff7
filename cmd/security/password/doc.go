// Package password holds the account password policy, the argon2id cost
// configuration and the PHC string codec:
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<lanes>$<salt>$<key>
//
// Hashing itself lives with the user model in cmd/identity.
package password
