/*
Package ports defines the driven ports (interfaces) of the slide deck editor.

These interfaces decouple editing sessions from concrete backends, so the same editor
runs against memory, files, Redis, SQLite or a remote presentation service.

# Key Interfaces

  - PresentationStore: loads and saves the present layer of a patient's deck.
  - ImageStore: keeps uploaded image blobs and hands back a node-usable location.
  - Watchable: notifies about decks changed behind the editor's back.
  - DistributedLocker: serialises access to a patient across replicas.
*/
package ports
