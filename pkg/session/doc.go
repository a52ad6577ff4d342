/*
Package session hosts walks through a tree on the server side.

The tree engine never remembers where a user is. Surfaces that cannot keep the
current node on the client (HTTP sessions, the terminal runner) use a Manager,
which records the current node and the answered steps so a walk can be resumed,
stepped back or reset. Access to one session is serialized in-process with
ref-counted locks and, optionally, across replicas with a ports.DistributedLocker.
*/
package session
