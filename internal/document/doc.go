// Package document filters untyped JSON and YAML documents.
//
// Go values carry their declaring types through reflection; decoded
// documents do not. A [Schema] supplies the missing type information: it
// names the type of the root document, the type of each object-valued
// property and the types each type embeds. [Filter] walks a yaml.v3 node
// tree with that information and asks a filter.Predicate about every key
// at the type that declares it.
package document
