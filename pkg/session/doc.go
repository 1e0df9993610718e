/*
Package session keeps the live editing sessions of a server.

A Manager owns one slidedeck.Editor per patient, loads it from the store on first use
and serialises multi-step operations on it. With a DistributedLocker the same patient
can be served by several replicas without interleaving saves.
*/
package session
