// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth derives voter identities.

There are no accounts. A voter is identified by the network origin of the
request, which is a coarse fingerprint: clients behind one NAT share an
identity, and a client switching networks gets a new one. The identity
deters repeat voting; it does not prove uniqueness.

# Voter Identity

	identity, err := auth.VoterIdentity(clientIP, salt)

The address is normalized (IPv4-mapped IPv6 unmapped, zone dropped) and then
hashed with HMAC-SHA256, so raw addresses are never persisted.

# IP Hashing

	hash := auth.HashIP(ipAddress, salt)

Returns the first 16 bytes (32 hex chars) of HMAC-SHA256.
*/
package auth
