// Package enum implements the process- and device-enumerator
// collaborator contracts of spec §6. Process enumeration must not be
// invoked from an audio callback — it is OS-API-bound and can be slow;
// callers use it only from session setup/UI paths, never from route().
package enum
