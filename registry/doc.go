/*
Package registry collects the handlers of generated model types.

Generated code registers one proxy.Handler per model from an init function:

	func init() {
	    registry.Register(personHandler{
	        TypeInfo: proxy.NewTypeInfo(PersonType, personSchema),
	    })
	}

mediator.FromRegistry takes a snapshot of the registered handlers, so the
set of supported model types is fixed once the program has initialized.
Registration is thread-safe; registering a model type twice panics.
*/
package registry
